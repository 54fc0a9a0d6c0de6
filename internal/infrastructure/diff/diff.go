package diff

import (
	"sort"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
)

// Differ reports which priced items changed between two knowledge snapshots.
type Differ struct{}

func (d *Differ) Diff(before, after *domain.ResolvedView) domain.ViewDelta {
	var delta domain.ViewDelta
	if after == nil {
		return delta
	}

	prevProducts := map[domain.ProductID]domain.ResolvedProduct{}
	prevAccessories := map[string]domain.ResolvedAccessory{}
	if before != nil {
		prevProducts = before.Products
		prevAccessories = before.Accessories
	}

	for id, p := range after.Products {
		old, ok := prevProducts[id]
		switch {
		case !ok:
			delta.Added = append(delta.Added, id.String())
		case productChanged(old, p):
			delta.Changed = append(delta.Changed, id.String())
		}
	}
	for id := range prevProducts {
		if _, ok := after.Products[id]; !ok {
			delta.Removed = append(delta.Removed, id.String())
		}
	}

	for key, a := range after.Accessories {
		old, ok := prevAccessories[key]
		switch {
		case !ok:
			delta.Added = append(delta.Added, key)
		case !old.Accessory.UnitPrice.Equal(a.Accessory.UnitPrice) || old.Level != a.Level || old.Unverified != a.Unverified:
			delta.Changed = append(delta.Changed, key)
		}
	}
	for key := range prevAccessories {
		if _, ok := after.Accessories[key]; !ok {
			delta.Removed = append(delta.Removed, key)
		}
	}

	sort.Strings(delta.Added)
	sort.Strings(delta.Removed)
	sort.Strings(delta.Changed)
	return delta
}

func productChanged(a, b domain.ResolvedProduct) bool {
	return a.Level != b.Level ||
		a.Unverified != b.Unverified ||
		!a.Spec.UnitPrice.Equal(b.Spec.UnitPrice) ||
		!a.Spec.MaxSpanM.Equal(b.Spec.MaxSpanM) ||
		!a.Spec.PanelLengthM.Equal(b.Spec.PanelLengthM) ||
		!a.Spec.UsableWidthM.Equal(b.Spec.UsableWidthM)
}
