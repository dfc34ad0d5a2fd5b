package util

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestParseUse(t *testing.T) {
	tests := []struct {
		use  string
		want Usage
	}{
		{"build", Usage{}},
		{"ls [options] <s3bucket>", Usage{Required: []string{"s3bucket"}}},
		{"get <bucket> <key>", Usage{Required: []string{"bucket", "key"}}},
		{"show <kind> [limit]", Usage{Required: []string{"kind"}, Optional: []string{"limit"}}},
		{"filter <filename>...", Usage{Required: []string{"filename"}, Variadic: true}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseUse(tt.use))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		use     string
		args    []string
		wantErr bool
	}{
		{"build", nil, false},
		{"build", []string{"x"}, true},
		{"get <bucket> <key>", []string{"b", "k"}, false},
		{"get <bucket> <key>", []string{"b"}, true},
		{"get <bucket> <key>", []string{"b", " "}, true},
		{"show <kind> [limit]", []string{"parcels", "3"}, false},
		{"show <kind> [limit]", []string{"parcels", "3", "4"}, true},
		{"filter <filename>...", []string{"a", "b", "c"}, false},
		{"filter <filename>...", nil, true},
	}
	for _, tt := range tests {
		cmd := &cobra.Command{Use: tt.use}
		err := Validate(cmd, tt.args)
		if tt.wantErr {
			assert.Error(t, err, "%s %v", tt.use, tt.args)
		} else {
			assert.NoError(t, err, "%s %v", tt.use, tt.args)
		}
	}
}
