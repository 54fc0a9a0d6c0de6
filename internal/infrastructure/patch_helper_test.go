package infrastructure

import (
	"encoding/json"
	"testing"
)

func TestApplyLayerPatch(t *testing.T) {
	doc := []byte(`{"version":"d1","accesorios":{"tuerca":{"precio":0.12}}}`)

	t.Run("merge patch altera e adiciona", func(t *testing.T) {
		out, err := ApplyLayerPatch(doc, []byte(`{"version":"d2","accesorios":{"arandela":{"precio":0.08}}}`))
		if err != nil {
			t.Fatalf("ApplyLayerPatch: %v", err)
		}
		var got map[string]interface{}
		if err := json.Unmarshal(out, &got); err != nil {
			t.Fatal(err)
		}
		if got["version"] != "d2" {
			t.Errorf("version = %v, want d2", got["version"])
		}
		acc := got["accesorios"].(map[string]interface{})
		if _, ok := acc["tuerca"]; !ok {
			t.Error("merge patch dropped an untouched accessory")
		}
		if _, ok := acc["arandela"]; !ok {
			t.Error("merge patch did not add arandela")
		}
	})

	t.Run("json patch rfc6902", func(t *testing.T) {
		out, err := ApplyLayerPatch(doc, []byte(`[{"op":"replace","path":"/accesorios/tuerca/precio","value":0.15}]`))
		if err != nil {
			t.Fatalf("ApplyLayerPatch: %v", err)
		}
		var got struct {
			Accesorios map[string]struct {
				Precio float64 `json:"precio"`
			} `json:"accesorios"`
		}
		if err := json.Unmarshal(out, &got); err != nil {
			t.Fatal(err)
		}
		if got.Accesorios["tuerca"].Precio != 0.15 {
			t.Errorf("precio = %v, want 0.15", got.Accesorios["tuerca"].Precio)
		}
	})

	t.Run("patch vazio devolve o documento", func(t *testing.T) {
		out, err := ApplyLayerPatch(doc, []byte("  \n"))
		if err != nil || string(out) != string(doc) {
			t.Errorf("empty patch changed the document: %s, %v", out, err)
		}
	})

	t.Run("operacao invalida falha", func(t *testing.T) {
		if _, err := ApplyLayerPatch(doc, []byte(`[{"op":"remove","path":"/nao/existe"}]`)); err == nil {
			t.Error("expected an error removing a missing path")
		}
	})
}
