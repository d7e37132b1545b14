// Package openapi встраивает OpenAPI документ RouteService в бинарник.
package openapi

import (
	_ "embed"
	"errors"
)

//go:embed route.swagger.json
var routeSpec []byte

// GetSpec возвращает копию документа
func GetSpec() ([]byte, error) {
	if len(routeSpec) == 0 {
		return nil, errors.New("openapi: embedded route spec is empty")
	}
	return append([]byte(nil), routeSpec...), nil
}

// MustGetSpec паникует, если документ не встроен
func MustGetSpec() []byte {
	spec, err := GetSpec()
	if err != nil {
		panic(err)
	}
	return spec
}
