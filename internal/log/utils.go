package log

import (
	"context"
	"encoding/json"
	"reflect"
)

const separator = "--------------------------------------"

// PrintArray writes arr as a JSON array when asJSON is set and as a list of
// labelled records otherwise.
func PrintArray[K any](ctx context.Context, arr []K, asJSON bool, fieldNameReplacements map[string]string) {
	if asJSON {
		if arr == nil {
			arr = []K{}
		}
		data, _ := json.MarshalIndent(arr, "", "  ")
		From(ctx).Println(string(data))
		return
	}

	PrettyPrintArray(ctx, arr, fieldNameReplacements)
}

func PrettyPrintArray[K any](ctx context.Context, arr []K, fieldNameReplacements map[string]string) {
	l := From(ctx)

	if len(arr) == 0 {
		l.Println("NO RESULTS")
		return
	}

	l.Println(separator)
	for _, item := range arr {
		PrettyPrint(ctx, item, fieldNameReplacements)
		l.Println(separator)
	}
}

func PrettyPrint(ctx context.Context, value any, fieldNameReplacements map[string]string) {
	l := From(ctx)

	refVal := reflect.ValueOf(value)

	if refVal.Kind() == reflect.Ptr {
		refVal = refVal.Elem()
	}

	if refVal.Kind() != reflect.Struct {
		l.PrintlnUnstyled(value)
		return
	}

	for i := 0; i < refVal.NumField(); i++ {
		field := refVal.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		fieldName := field.Name
		val := refVal.Field(i)

		if (val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface) && !val.IsNil() {
			val = val.Elem()
		}

		var value any = "(absent)"
		if val.IsValid() && !((val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface) && val.IsNil()) {
			value = val.Interface()
			switch val.Kind() {
			case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.String:
				data, _ := json.Marshal(value)
				value = string(data)
			}
		}

		if fieldNameReplacements != nil {
			if replacement, ok := fieldNameReplacements[fieldName]; ok {
				fieldName = replacement
			}
		}

		l.Printf("%s: %v", fieldName, value)
	}
}
