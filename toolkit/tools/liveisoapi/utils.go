// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisoapi

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type HasIsValid interface {
	IsValid() error
}

// LoadConfigFile reads a YAML config file on top of DefaultConfig and
// validates the result.
func LoadConfigFile(configFilePath string) (Config, error) {
	config := DefaultConfig()

	err := UnmarshalAndValidateYamlFile(configFilePath, &config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config file (%s):\n%w", configFilePath, err)
	}

	return config, nil
}

func UnmarshalAndValidateYamlFile[ValueType HasIsValid](yamlFilePath string, value ValueType) error {
	yamlFile, err := os.ReadFile(yamlFilePath)
	if err != nil {
		return err
	}

	return UnmarshalAndValidateYaml(yamlFile, value)
}

func UnmarshalAndValidateYaml[ValueType HasIsValid](yamlData []byte, value ValueType) error {
	err := UnmarshalYaml(yamlData, value)
	if err != nil {
		return err
	}

	return value.IsValid()
}

func UnmarshalYaml[ValueType any](yamlData []byte, value ValueType) error {
	reader := bytes.NewReader(yamlData)
	decoder := yaml.NewDecoder(reader)

	// Ensure unknown fields result in an error.
	decoder.KnownFields(true)

	err := decoder.Decode(value)
	if err != nil {
		return err
	}

	return nil
}

func MarshalYamlFile[ValueType any](yamlfilePath string, value ValueType) (err error) {
	yamlString, err := MarshalYaml(value)
	if err != nil {
		return err
	}

	file, err := os.Create(yamlfilePath)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			if err != nil {
				err = fmt.Errorf("%w:\nfailed to close (%s): %w", err, yamlfilePath, closeErr)
			} else {
				err = fmt.Errorf("failed to close (%s): %w", yamlfilePath, closeErr)
			}
		}
	}()

	_, err = file.WriteString(yamlString)
	if err != nil {
		return err
	}

	return nil
}

func MarshalYaml[ValueType any](value ValueType) (string, error) {
	yamlData, err := yaml.Marshal(value)
	if err != nil {
		return "", err
	}

	return string(yamlData), nil
}
