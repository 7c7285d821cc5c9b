package prefill

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_YAML(t *testing.T) {
	data, err := Decode(strings.NewReader(`
first_name: Jane
last_name: Doe
email: jane@example.com
phone: 5551234567
subject: "  Partnership  "
company:
`))
	require.NoError(t, err)

	assert.Equal(t, "Jane", data["first_name"])
	assert.Equal(t, "5551234567", data["phone"])
	assert.Equal(t, "Partnership", data["subject"])
	assert.Equal(t, "", data["company"])
}

func TestDecode_JSON(t *testing.T) {
	data, err := Decode(strings.NewReader("\ufeff" + `{"email": "a@b.test", "message": "Hello", "age": 30}`))
	require.NoError(t, err)

	assert.Equal(t, "a@b.test", data["email"])
	assert.Equal(t, "Hello", data["message"])
	assert.Equal(t, "30", data["age"])
}

func TestDecode_Nested(t *testing.T) {
	_, err := Decode(strings.NewReader("address:\n  city: Boston\n"))
	assert.ErrorIs(t, err, ErrNotFlat)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefill.yaml")
	require.NoError(t, os.WriteFile(path, []byte("email: x@y.test\n"), 0o600))

	data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x@y.test", data["email"])

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
