package config

import (
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env files into the process environment. Missing files
// are not an error; variables already set are never overwritten.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

type lookupFunc func(string) (string, bool)

// applyEnvironment overlays the RESPONSIVE_IMAGES_* variables.
func (c *Config) applyEnvironment(lookup lookupFunc) {
	if v, ok := lookupTrimmed(lookup, "USE_RESPONSIVE_IMAGES"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UseResponsiveImages = b
		}
	}
	if v, ok := lookupTrimmed(lookup, "RESPONSIVE_IMAGES_SOURCE_DISK"); ok {
		c.SourceDisk = v
	}
	if v, ok := lookupTrimmed(lookup, "RESPONSIVE_IMAGES_TARGET_DISK"); ok {
		c.TargetDisk = v
	}
	if v, ok := lookupTrimmed(lookup, "RESPONSIVE_IMAGES_SOURCE_DIRECTORY"); ok {
		c.SourceDirectory = v
	}
	if v, ok := lookupTrimmed(lookup, "RESPONSIVE_IMAGES_TARGET_DIRECTORY"); ok {
		c.TargetDirectory = v
	}
	if v, ok := lookupTrimmed(lookup, "RESPONSIVE_IMAGES_CONCURRENCY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}

	s3, ok := c.Disks["s3"]
	if !ok {
		return
	}
	s3.Endpoint = envOr(lookup, "RESPONSIVE_IMAGES_S3_ENDPOINT", s3.Endpoint)
	s3.Region = envOr(lookup, "RESPONSIVE_IMAGES_S3_REGION", s3.Region)
	s3.Bucket = envOr(lookup, "RESPONSIVE_IMAGES_S3_BUCKET", s3.Bucket)
	s3.AccessKey = envOr(lookup, "RESPONSIVE_IMAGES_S3_ACCESS_KEY", s3.AccessKey)
	s3.SecretKey = envOr(lookup, "RESPONSIVE_IMAGES_S3_SECRET_KEY", s3.SecretKey)
	s3.URL = envOr(lookup, "RESPONSIVE_IMAGES_S3_URL", s3.URL)
	if v, ok := lookupTrimmed(lookup, "RESPONSIVE_IMAGES_S3_USE_SSL"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s3.UseSSL = b
		}
	}

	disks := make(map[string]Disk, len(c.Disks))
	for name, d := range c.Disks {
		disks[name] = d
	}
	disks["s3"] = s3
	c.Disks = disks
}

func lookupTrimmed(lookup lookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func envOr(lookup lookupFunc, key, fallback string) string {
	if v, ok := lookupTrimmed(lookup, key); ok {
		return v
	}
	return fallback
}
