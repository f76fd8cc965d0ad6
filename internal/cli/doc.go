// Package cli implements the tunefetch command line.
//
// Command structure:
//
//	tunefetch
//	├── serve              run the HTTP API
//	├── fetch <locator>    fetch a single track
//	├── batch [file]       fetch a batch into one archive
//	├── search <query>     resolve a query to a locator
//	├── lookup             print an album's track list
//	├── --config, -c       config file (JSON or YAML)
//	└── --verbose, -v      verbose output
package cli
