/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

const defaultDomain = "localhost"

// Config represents a router configuration.
type Config struct {
	Hosts []string
}

type configProxy struct {
	Hosts []string `yaml:"hosts"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	c.Hosts = p.Hosts
	if len(c.Hosts) == 0 {
		c.Hosts = []string{defaultDomain}
	}
	return nil
}
