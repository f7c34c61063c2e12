package validator

import (
	"errors"
	"fmt"
	"moviecatalog/proj/internal/utils"
	"reflect"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
)

func getFieldName(obj any, origFieldName string) (fieldName string) {
	t := indirectType(obj)
	field, found := t.FieldByName(origFieldName)
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", origFieldName, t.Name()))
	}
	if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
		jsonName := strings.Split(tag, ",")[0]
		if jsonName != "" {
			return jsonName
		}
	}
	return utils.CamelToSnake(origFieldName)
}

func indirectType(obj any) reflect.Type {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) map[string]string {
	processedErrors := make(map[string]string)
	for _, e := range errs {
		processedErrors[getFieldName(obj, e.StructField())] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

// ValidateStruct returns field -> message for every failed rule, or nil.
func ValidateStruct(validator *govalidator.Validate, obj any) (validationErrs map[string]string) {
	if err := validator.Struct(obj); err != nil {
		var errs govalidator.ValidationErrors
		if !errors.As(err, &errs) {
			panic(err)
		}
		validationErrs = ProcessValidationErrors(obj, errs)
	}
	return
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	t := indirectType(obj)
	field, found := t.FieldByName(err.StructField())
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", err.StructField(), t.Name()))
	}
	errorMsg = field.Tag.Get("errorMsg")
	if errorMsg == "" {
		switch err.Tag() {
		case "required", "notblank":
			errorMsg = "This field is required"
		case "max":
			errorMsg = fmt.Sprintf("The maximum value is %s", err.Param())
		case "min":
			errorMsg = fmt.Sprintf("The minimum value is %s", err.Param())
		case "gte":
			errorMsg = fmt.Sprintf("Value should be greater than or equal to %s", err.Param())
		case "lte":
			errorMsg = fmt.Sprintf("Value should be less than or equal to %s", err.Param())
		case "len":
			errorMsg = fmt.Sprintf("Length should be equal to %s", err.Param())
		case "url":
			errorMsg = "Please enter a valid URL."
		case "email":
			errorMsg = "Invalid email address"
		case "year":
			errorMsg = "Please enter a valid year (e.g., 2023)."
		case "rating_range":
			errorMsg = "Please enter a valid rating between 0 and 10."
		case "rating_format":
			errorMsg = "Please enter a valid rating between 0 and 10, with one decimal place."
		default:
			errorMsg = "This field is invalid"
		}
	}
	return
}
