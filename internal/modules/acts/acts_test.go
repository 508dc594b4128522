package acts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("typed value passes through", func(t *testing.T) {
		in := SysAct{Type: SysGreet}
		out, err := Decode[SysAct](in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("generic map from a script", func(t *testing.T) {
		out, err := Decode[SysAct](map[string]interface{}{
			"type":  "bad",
			"slots": map[string]interface{}{"count": int64(2)},
		})
		require.NoError(t, err)
		assert.Equal(t, SysBad, out.Type)
		assert.Equal(t, float64(2), out.Slots["count"])
	})

	t.Run("slice of acts", func(t *testing.T) {
		out, err := Decode[[]UserAct]([]interface{}{
			map[string]interface{}{"intent": "greet", "text": "hi"},
		})
		require.NoError(t, err)
		assert.Equal(t, []UserAct{{Intent: IntentGreet, Text: "hi"}}, out)
	})

	t.Run("mismatched shape", func(t *testing.T) {
		_, err := Decode[[]UserAct]("hello")
		assert.Error(t, err)
	})
}
