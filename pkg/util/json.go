package util

import (
	"encoding/json"
	"fmt"
)

// PrintPrettyJSON prints v to stdout as indented JSON.
func PrintPrettyJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
