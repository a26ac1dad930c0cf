package services_test

import (
	"testing"

	"github.com/Deepanshv/prop-manager-sub001/internal/models"
	"github.com/Deepanshv/prop-manager-sub001/internal/services"
)

func TestCanAccess(t *testing.T) {
	prop := models.Property{ID: "p1", OwnerUID: "owner-1"}
	prospect := models.Prospect{ID: "l1", OwnerUID: "owner-2"}

	cases := []struct {
		name string
		uid  string
		res  services.Ownable
		want bool
	}{
		{"owner reads own property", "owner-1", prop, true},
		{"stranger denied", "owner-2", prop, false},
		{"owner reads own prospect", "owner-2", prospect, true},
		{"empty identity always denied", "", prop, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.CanAccess(tc.uid, tc.res); got != tc.want {
				t.Fatalf("CanAccess(%q) = %v, want %v", tc.uid, got, tc.want)
			}
		})
	}
}
