// Package dto defines the brand bootstrap command and result.
package dto

import "time"

// ProductSpec names a product to create with a brand
type ProductSpec struct {
	Slug string `yaml:"slug" json:"slug"`
	Name string `yaml:"name" json:"name"`
}

// CreateBrandCommand creates a brand, its products and a first API key
type CreateBrandCommand struct {
	Name       string
	Slug       string
	KeyPrefix  string
	Products   []ProductSpec
	APIKeyName string
	Scope      string
	ExpiresAt  *time.Time
}

// ProductResult is a created product
type ProductResult struct {
	ID   string `yaml:"id" json:"id"`
	Slug string `yaml:"slug" json:"slug"`
	Name string `yaml:"name" json:"name"`
}

// APIKeyResult carries the only copy of the plaintext API key
type APIKeyResult struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Key       string     `yaml:"key" json:"key"`
	Scope     string     `yaml:"scope" json:"scope"`
	ExpiresAt *time.Time `yaml:"expires_at,omitempty" json:"expires_at,omitempty"`
}

// CreateBrandResult is printed by the CLI
type CreateBrandResult struct {
	ID        string          `yaml:"id" json:"id"`
	Name      string          `yaml:"name" json:"name"`
	Slug      string          `yaml:"slug" json:"slug"`
	KeyPrefix string          `yaml:"key_prefix" json:"key_prefix"`
	Products  []ProductResult `yaml:"products" json:"products"`
	APIKey    APIKeyResult    `yaml:"api_key" json:"api_key"`
}

// CreateAPIKeyCommand issues another key for an existing brand
type CreateAPIKeyCommand struct {
	BrandSlug string
	Name      string
	Scope     string
	ExpiresAt *time.Time
}
