package codectest

import (
	"testing"

	serde "github.com/Bithero-Agency/serde-go"
	"github.com/Bithero-Agency/serde-go/codec/json"
	"github.com/Bithero-Agency/serde-go/codec/msgpack"
	"github.com/Bithero-Agency/serde-go/codec/yaml"
)

func init() {
	Register("json", func() serde.Codec { return json.New() })
	Register("yaml", func() serde.Codec { return yaml.New() })
	Register("msgpack", func() serde.Codec { return msgpack.New() })
}

func TestCodecs(t *testing.T) {
	RunAll(t)
}
