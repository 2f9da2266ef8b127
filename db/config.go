// Copyright (c) 2021 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

const (
	// DBBolt is bolt db type
	DBBolt = "boltdb"
	// DBPebble is pebble db type
	DBPebble = "pebbledb"
	// DBMemory is the in-memory db type, nothing is persisted
	DBMemory = "memory"
)

// Config is the config for database
type Config struct {
	DbPath string `yaml:"dbPath"`
	// DBType is the type of the underlying store
	DBType string `yaml:"dbType"`
	// NumRetries is the number of retries
	NumRetries uint8 `yaml:"numRetries"`
	// ReadOnly is set db to be opened in read only mode
	ReadOnly bool `yaml:"readOnly"`
}

// DefaultConfig returns the default config
var DefaultConfig = Config{
	DbPath:     "/var/data/delegation.db",
	DBType:     DBBolt,
	NumRetries: 3,
	ReadOnly:   false,
}
