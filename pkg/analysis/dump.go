package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// DumpPath returns the file a raw response for key is written to. Path
// separators in the key are flattened so every dump lands directly in dir.
func DumpPath(dir, key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	return filepath.Join(dir, name+".json")
}

// dump writes the raw analysis response for key into dir, replacing any
// earlier dump of the same document
func dump(dir, key string, resp any) error {
	data, err := marshalResponse(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response for %s: %w", key, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create debug directory: %w", err)
	}
	if err := os.WriteFile(DumpPath(dir, key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write response for %s: %w", key, err)
	}
	return nil
}

// marshalResponse indents a Document AI proto with its proto field names,
// and a Textract output struct with encoding/json
func marshalResponse(resp any) ([]byte, error) {
	if m, ok := resp.(proto.Message); ok {
		return protojson.MarshalOptions{Multiline: true, Indent: "  ", UseProtoNames: true}.Marshal(m)
	}
	return json.MarshalIndent(resp, "", "  ")
}
