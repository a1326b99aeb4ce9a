package main

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var embeddedFixtures []byte

type fixtureFile struct {
	Products []map[string]interface{} `yaml:"products"`
}

// loadFixtures читает товары из YAML. Пустой путь означает встроенный каталог
func loadFixtures(path string) ([]map[string]interface{}, error) {
	data := embeddedFixtures
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения фикстур: %w", err)
		}
		data = raw
	}
	return parseFixtures(data)
}

func parseFixtures(data []byte) ([]map[string]interface{}, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора фикстур: %w", err)
	}
	if file.Products == nil {
		file.Products = []map[string]interface{}{}
	}
	return file.Products, nil
}
