package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"strong", "Campus!Forum42", false},
		{"minimum length", "Abcdefghij1!", false},
		{"maximum length", "A" + strings.Repeat("x", 125) + "9!", false},
		{"too short", "Ab1!", true},
		{"eight characters is not enough", "Abcdef1!", true},
		{"too long", "A" + strings.Repeat("x", 126) + "9!", true},
		{"missing upper", "campus!forum42", true},
		{"missing lower", "CAMPUS!FORUM42", true},
		{"missing digit", "Campus!Forum!!", true},
		{"missing special", "CampusForum421", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		username string
		wantErr  bool
	}{
		{"river_song", false},
		{"ab", true},
		{strings.Repeat("a", 31), true},
		{"has space", true},
		{"_leading", true},
		{"trailing-", true},
	}

	for _, tt := range tests {
		err := ValidateUsername(tt.username)
		if tt.wantErr {
			assert.Error(t, err, tt.username)
		} else {
			assert.NoError(t, err, tt.username)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	longest := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 185) + ".com"
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"student@uni.edu", false},
		{"first.last@mail.uni.ac.uk", false},
		{longest, false},
		{longest + "m", true},
		{"plainaddress", true},
		{"user@", true},
		{"user@@uni.edu", true},
		{"user@uni.edu.", true},
	}

	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		if tt.wantErr {
			assert.Error(t, err, tt.email)
		} else {
			assert.NoError(t, err, tt.email)
		}
	}
}
