////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles low level database control and interfaces

package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/id"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DbTimeout determines maximum runtime (in seconds) of specific DB queries
const DbTimeout = 1

// Errors returned by the substrate. They are passed to callers unchanged.
var (
	ErrAlreadyInitialized = errors.New("account already initialized")
	ErrNotFound           = errors.New("account not found")
)

// Interface declaration for storage methods
type database interface {
	InsertRecord(record *Record) error
	GetRecord(address *id.ID) (*Record, error)
	InsertComputationDefinition(def *ComputationDefinition) error
	GetComputationDefinition(program *id.ID, offset uint32) (*ComputationDefinition, error)
}

// DatabaseImpl Struct implementing the database Interface with an underlying DB
type DatabaseImpl struct {
	db *gorm.DB // Stored database connection
}

// MapImpl Struct implementing the database Interface with an underlying Map
type MapImpl struct {
	records     map[id.ID]*Record
	definitions map[id.ID]*ComputationDefinition
	sync.RWMutex
}

// Record is the account holding one owner's encrypted patient record
type Record struct {
	Address []byte `gorm:"primaryKey"`
	// Records are per program; the address is derived from program and owner
	Owner []byte `gorm:"not null;index"`

	// The 11 ciphertext slots, in field order
	Ciphertexts []byte `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
}

// ComputationDefinition is the one-time descriptor of a circuit for a program
type ComputationDefinition struct {
	Address       []byte `gorm:"primaryKey"`
	Program       []byte `gorm:"not null;uniqueIndex:idx_program_offset"`
	CompDefOffset uint32 `gorm:"not null;uniqueIndex:idx_program_offset"`
	Name          string `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
}

// Initialize the database interface with database backend
// Returns a database interface and error
func newDatabase(username, password, dbName, address, port string, devMode bool) (database, error) {
	var err error
	var db *gorm.DB

	// Connect to the database if the correct information is provided
	if address != "" && port != "" {
		// Create the database connection
		connectString := fmt.Sprintf(
			"host=%s port=%s user=%s dbname=%s sslmode=disable",
			address, port, username, dbName)
		// Handle empty database password
		if len(password) > 0 {
			connectString += fmt.Sprintf(" password=%s", password)
		}
		db, err = gorm.Open(postgres.Open(connectString), &gorm.Config{
			Logger: logger.New(jww.TRACE, logger.Config{LogLevel: logger.Info}),
		})
	}

	// Return the map-backend interface
	// in the event there is a database error or information is not provided
	if (address == "" || port == "") || err != nil {

		var failReason string
		if err != nil {
			failReason = fmt.Sprintf("Unable to initialize database backend: %+v", err)
			jww.WARN.Printf(failReason)
		} else {
			failReason = "Database backend connection information not provided"
			jww.WARN.Printf(failReason)
		}

		if !devMode {
			jww.FATAL.Panicf("Cannot run in production "+
				"without a database: %s", failReason)
		}

		defer jww.INFO.Println("Map backend initialized successfully!")
		return database(newMapImpl()), nil
	}

	// Get and configure the internal database ConnPool
	sqlDb, err := db.DB()
	if err != nil {
		return database(&DatabaseImpl{}), errors.Errorf("Unable to configure database connection pool: %+v", err)
	}
	// SetMaxIdleConns sets the maximum number of connections in the idle connection pool.
	sqlDb.SetMaxIdleConns(10)
	// SetMaxOpenConns sets the maximum number of open connections to the Database.
	sqlDb.SetMaxOpenConns(100)
	// SetConnMaxLifetime sets the maximum amount of time a connection may be reused.
	sqlDb.SetConnMaxLifetime(24 * time.Hour)

	// Initialize the database schema
	// WARNING: Order is important. Do not change without database testing
	models := []interface{}{&Record{}, &ComputationDefinition{}}
	for _, model := range models {
		err = db.AutoMigrate(model)
		if err != nil {
			return database(&DatabaseImpl{}), err
		}
	}

	// Build the interface
	di := &DatabaseImpl{
		db: db,
	}

	jww.INFO.Println("Database backend initialized successfully!")
	return database(di), nil
}

func newMapImpl() *MapImpl {
	return &MapImpl{
		records:     make(map[id.ID]*Record),
		definitions: make(map[id.ID]*ComputationDefinition),
	}
}
