// Package cfgloader provides a simple way to load and validate configuration at the start of an application.
package cfgloader

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"

	envCustom = "custom"
)

// MustLoad is like Load but logs the error and exits the process on failure.
func MustLoad[T any](opts ...Option) T {
	config, err := Load[T](opts...)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	return config
}

// Load loads and validates configuration from a YAML file based on the ENVIRONMENT variable.
// The files must be named in the format ${ENVIRONMENT}.yaml and located in the config directory
// at the root of the project, unless WithPath points somewhere else.
//
// The configuration struct should use `yaml` struct tags to map fields to the YAML file structure.
// ${VAR} references in the file are expanded from the process environment, after .env is loaded.
//
// Default values for configuration fields can be set using the `default` struct tag. These values are applied before validation
// if the corresponding fields are not explicitly defined in the YAML file.
//
// Validations are done using the go-playground/validator package.
// See https://pkg.go.dev/github.com/go-playground/validator/v10 for more information.
//
// Example:
//
//	type Config struct {
//	    Addr     string `yaml:"addr" validate:"required"`    // Maps to the "addr" field in the YAML file, required
//	    Port     int    `yaml:"port" default:"7070"`         // Maps to the "port" field in the YAML file, defaults to 7070
//	    Password string `yaml:"password" mask:"true"`        // Printed as *** when the config is logged
//	}
func Load[T any](opts ...Option) (T, error) {
	var config T

	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}

	if reflect.ValueOf(&config).Elem().Kind() == reflect.Ptr {
		return config, errx.New("[cfgloader]: type parameter must not be a pointer")
	}

	_ = godotenv.Load()

	env := envCustom
	path := o.Path
	if path == "" {
		var err error
		env, err = defineEnvironment()
		if err != nil {
			return config, err
		}
		path = buildConfigPath(env)
	}

	data, err := readConfigFile(path)
	if err != nil {
		return config, err
	}

	data = replaceEnvVars(data)

	// Defaults go in first so that an explicit zero in the file, such as
	// "disable: false", is not replaced by a non-zero default.
	if err = defaults.Set(&config); err != nil {
		return config, errx.New(fmt.Sprintf("[cfgloader]: failed to set default values for config: %s", err))
	}

	if err = yaml.Unmarshal(data, &config); err != nil {
		return config, errx.New(
			fmt.Sprintf("[cfgloader]: failed to unmarshal %s config file: %v", env, err),
			errx.WithDetails(errx.D{"path": path}),
		)
	}

	if err = validateConfig(&config, env); err != nil {
		return config, err
	}

	if !o.Silent {
		printConfig(config)
	}

	return config, nil
}

func defineEnvironment() (string, error) {
	env := os.Getenv("ENVIRONMENT")
	if !slices.Contains([]string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}, env) {
		return "", errx.New(
			"[cfgloader]: ENVIRONMENT env variable is not set or invalid. Choices are: production, staging, dev, local, test",
			errx.WithDetails(errx.D{"environment": env}),
		)
	}
	return env, nil
}

func buildConfigPath(env string) string {
	return fmt.Sprintf("./config/%s.yaml", env)
}

func readConfigFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errx.New(
			fmt.Sprintf(
				"[cfgloader]: config file not found in the path %s - Make sure that the yaml file exists for each environment",
				path,
			),
		)
	}
	if err != nil {
		return nil, errx.New(fmt.Sprintf("[cfgloader]: failed to read config file %s: %v", path, err))
	}

	return data, nil
}

func replaceEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

func validateConfig(config any, env string) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(config)

	failedFields := make([]string, 0)
	if errs, ok := err.(validator.ValidationErrors); ok { //nolint: errorlint // Using type assertion for validator errors handling
		for _, err := range errs {
			tagErr := err.Tag()
			if err.Param() != "" {
				tagErr += "=" + err.Param()
			}
			failedFields = append(failedFields, fmt.Sprintf("%s: %s", err.Namespace(), tagErr))
		}
	}

	if len(failedFields) > 0 {
		return errx.New(
			fmt.Sprintf("[cfgloader]: invalid fields in %s config -> %s", env, strings.Join(failedFields, ",  ")),
			errx.WithType(errx.T_Validation),
		)
	}
	return nil
}
