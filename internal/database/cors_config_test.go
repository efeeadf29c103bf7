package database

import (
	"context"
	"reflect"
	"testing"

	"github.com/ticvision/ticvision/internal/models"
)

func TestAllowedOriginsSlice(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"only separators", " , ,, ", nil},
		{"single", "https://app.ticvision.example", []string{"https://app.ticvision.example"}},
		{"keeps order", "https://b.example, https://a.example", []string{"https://b.example", "https://a.example"}},
		{"dedup after trim", "https://a.example , https://a.example,https://c.example", []string{"https://a.example", "https://c.example"}},
		{"wildcard", "*", []string{"*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AllowedOriginsSlice(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AllowedOriginsSlice(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCorsConfigRepository_SetRejectsEmptyOrigins(t *testing.T) {
	t.Parallel()

	// rejected before the database is touched
	repo := &CorsConfigRepository{}
	err := repo.Set(context.Background(), &models.CorsConfig{AllowedOrigins: " , "})
	if err == nil {
		t.Fatal("Set() should reject an empty origin list")
	}
}
