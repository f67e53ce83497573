package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name string
		env  Environment
		want string
	}{
		{
			name: "override wins over everything",
			env:  Environment{Override: "https://staging.example.com/", Dev: true, DevHostURI: "192.168.1.20:19000", Platform: "android"},
			want: "https://staging.example.com",
		},
		{
			name: "dev host inferred from dev server uri",
			env:  Environment{Dev: true, DevHostURI: "192.168.1.20:19000", Platform: "android"},
			want: "http://192.168.1.20:8080",
		},
		{
			name: "dev host with scheme and path",
			env:  Environment{Dev: true, DevHostURI: "exp://10.1.2.3:8081/--/home"},
			want: "http://10.1.2.3:8080",
		},
		{
			name: "dev host without port",
			env:  Environment{Dev: true, DevHostURI: "devbox.local"},
			want: "http://devbox.local:8080",
		},
		{
			name: "android emulator loopback",
			env:  Environment{Dev: true, Platform: "Android"},
			want: "http://10.0.2.2:8080",
		},
		{
			name: "other platforms use localhost",
			env:  Environment{Dev: true, Platform: "ios"},
			want: "http://localhost:8080",
		},
		{
			name: "production ignores dev sources",
			env:  Environment{DevHostURI: "192.168.1.20:19000", Platform: "android"},
			want: ProductionURL,
		},
		{
			name: "blank override is absent",
			env:  Environment{Override: "   "},
			want: ProductionURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveBaseURL(tt.env))
		})
	}
}
