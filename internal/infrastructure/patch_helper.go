package infrastructure

import (
	"bytes"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ApplyLayerPatch aplica um patch sobre o documento JSON de uma camada.
// Um array é tratado como JSON Patch (RFC 6902); um objeto como merge patch (RFC 7386).
func ApplyLayerPatch(document, patchData []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(patchData)
	if len(trimmed) == 0 {
		return document, nil
	}

	if trimmed[0] == '[' {
		patch, err := jsonpatch.DecodePatch(trimmed)
		if err != nil {
			return nil, fmt.Errorf("falha ao decodificar patch: %w", err)
		}
		modified, err := patch.Apply(document)
		if err != nil {
			return nil, fmt.Errorf("falha ao aplicar patch: %w", err)
		}
		return modified, nil
	}

	modified, err := jsonpatch.MergePatch(document, trimmed)
	if err != nil {
		return nil, fmt.Errorf("falha ao aplicar merge patch: %w", err)
	}
	return modified, nil
}
