package pt2itp

import (
	"encoding/json"
	"sort"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
)

// Props materializes per-address metadata (address_props) as carmen:addressprops.
//
// For every key (all keys met in metadata if keys is empty) the most common value becomes feature property
// and every address holding a different value is recorded as carmen:addressprops[key][<address index>].
// address_props is removed afterwards.
func Props(feat *geojson.Feature, keys []string) (*geojson.Feature, error) {
	if feat == nil || feat.Properties == nil || !truthy(feat.Properties[PropAddressNumber]) {
		return feat, nil
	}
	if truthy(feat.Properties[PropCarmenAddressProps]) {
		return feat, ErrOrderingViolation
	}
	addressProps, ok := propertyArray(feat.Properties, PropAddressProps)
	if !ok {
		return feat, nil
	}

	if len(keys) == 0 {
		keys = metadataKeys(addressProps)
	}

	carmenProps := map[string]interface{}{}
	for _, key := range keys {
		values := make([]interface{}, len(addressProps))
		present := make([]bool, len(addressProps))
		for i, raw := range addressProps {
			props, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			values[i], present[i] = props[key]
		}

		common, found := mostCommon(values, present)
		if !found {
			continue
		}
		feat.Properties[key] = common

		commonKey := valueKey(common)
		sparse := map[string]interface{}{}
		for i := range values {
			if !present[i] || valueKey(values[i]) == commonKey {
				continue
			}
			sparse[strconv.Itoa(i)] = values[i]
		}
		if len(sparse) > 0 {
			carmenProps[key] = sparse
		}
	}

	delete(feat.Properties, PropAddressProps)
	if len(carmenProps) > 0 {
		feat.Properties[PropCarmenAddressProps] = carmenProps
	}
	return feat, nil
}

// metadataKeys returns sorted set of keys used by address metadata
func metadataKeys(addressProps []interface{}) []string {
	seen := map[string]struct{}{}
	for _, raw := range addressProps {
		props, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		for key := range props {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// mostCommon returns the most frequent present value. Ties are resolved in favour of the earliest value
func mostCommon(values []interface{}, present []bool) (interface{}, bool) {
	counts := map[string]int{}
	first := map[string]int{}
	for i, v := range values {
		if !present[i] {
			continue
		}
		k := valueKey(v)
		if _, ok := first[k]; !ok {
			first[k] = i
		}
		counts[k]++
	}
	if len(counts) == 0 {
		return nil, false
	}
	bestKey := ""
	bestCount := -1
	for k, count := range counts {
		if count > bestCount || (count == bestCount && first[k] < first[bestKey]) {
			bestKey = k
			bestCount = count
		}
	}
	return values[first[bestKey]], true
}

// valueKey returns comparable representation of decoded JSON value
func valueKey(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
