package utils

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// JSONToMap converts a datatypes.JSON column to a map. Empty input yields an empty map.
func JSONToMap(jsonData datatypes.JSON) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	if len(jsonData) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(jsonData, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MapToJSON converts a map to a datatypes.JSON column value
func MapToJSON(data map[string]interface{}) (datatypes.JSON, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return jsonData, nil
}
