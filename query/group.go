package query

import (
	"fmt"
	"sort"
	"strconv"
)

// groupRows buckets rows by the value of each requested group field.
//
// Every group field produces its own independent partition of the full row
// set: the rows are stably sorted by the field's value and adjacent runs of
// equal keys become one bucket, so each bucket preserves dataset order.
// The result maps group field name to observed key to the rows sharing it.
func groupRows(rows []map[string]interface{}, groups []string) (map[string]map[string][]map[string]interface{}, error) {
	result := make(map[string]map[string][]map[string]interface{}, len(groups))

	for _, group := range groups {
		keyed := make([]struct {
			key   string
			value interface{}
			row   map[string]interface{}
		}, len(rows))

		for i, row := range rows {
			value, ok := row[group]
			if !ok {
				return nil, errorf(ErrInvalidElement, "invalid element: %s", group)
			}
			keyed[i] = struct {
				key   string
				value interface{}
				row   map[string]interface{}
			}{groupKey(value), value, row}
		}

		sort.SliceStable(keyed, func(i, j int) bool {
			if cmp, ok := compareValues(keyed[i].value, keyed[j].value); ok {
				return cmp < 0
			}
			return keyed[i].key < keyed[j].key
		})

		buckets := make(map[string][]map[string]interface{})
		for _, entry := range keyed {
			buckets[entry.key] = append(buckets[entry.key], entry.row)
		}
		result[group] = buckets
	}

	return result, nil
}

// groupKey renders a group value as its canonical string key. Integral
// floats render without a fractional part so JSON-loaded and parquet-loaded
// datasets produce the same keys.
func groupKey(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", v)
	}
}
