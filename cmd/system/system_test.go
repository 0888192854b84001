package system

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pasetotoken "github.com/Alijeyrad/simorq_scheduler/pkg/paseto"
)

const memoryConfig = `
authentication:
  paseto:
    mode: local
scheduler:
  store: memory
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(memoryConfig), 0o600))

	root := &cobra.Command{Use: "simorq-scheduler", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", path, "")
	root.AddCommand(NewSystemCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"system"}, args...))
	err := root.Execute()
	return out.String(), err
}

func keyLines(out string) map[string]string {
	got := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		k, v, ok := strings.Cut(line, ": ")
		if ok {
			got[k] = v
		}
	}
	return got
}

func TestKeygen(t *testing.T) {
	out, err := run(t, "keygen")
	require.NoError(t, err)
	lines := keyLines(out)
	assert.Equal(t, "local", lines["mode"])
	_, err = pasetotoken.ParseKeys(pasetotoken.ModeLocal, lines["local_key_hex"], "", "")
	assert.NoError(t, err)

	out, err = run(t, "keygen", "--mode", "public")
	require.NoError(t, err)
	lines = keyLines(out)
	keys, err := pasetotoken.ParseKeys(pasetotoken.ModePublic, "", lines["secret_key_hex"], "")
	require.NoError(t, err)
	assert.Equal(t, lines["public_key_hex"], keys.Public.ExportHex())

	_, err = run(t, "keygen", "--mode", "hmac")
	assert.ErrorIs(t, err, pasetotoken.ErrMisconfigured)
}

func TestRevoke_Rejects(t *testing.T) {
	_, err := run(t, "revoke", "--session", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --session")

	_, err = run(t, "revoke", "--session", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.addr")

	_, err = run(t, "revoke")
	assert.Error(t, err)
}
