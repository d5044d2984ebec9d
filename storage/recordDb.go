////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the database ORM for records and computation definitions

package storage

import (
	"context"
	"time"

	"github.com/jackc/pgconn"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/id"
	"gorm.io/gorm"
)

// Helper for forcing panics in the event of a CDE, otherwise acts as a pass-through
func catchCde(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		jww.FATAL.Panicf("Database call timed out: %+v", err.Error())
	}
	return err
}

// Maps gorm's missing row error onto ErrNotFound
func notFound(err error, what string, addr []byte) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.WithMessagef(ErrNotFound, "%s %x", what, addr)
	}
	return catchCde(err)
}

// Postgres SQLSTATE unique_violation
const uniqueViolation = "23505"

// Maps a unique constraint violation, as lost by a concurrent insert, onto
// ErrAlreadyInitialized
func alreadyInitialized(err error, what string, key interface{}) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.WithMessagef(ErrAlreadyInitialized, "%s %v: %s",
			what, key, pgErr.ConstraintName)
	}
	return catchCde(err)
}

// InsertRecord creates the Record in the Database. It fails with
// ErrAlreadyInitialized if the account already has a record
func (d *DatabaseImpl) InsertRecord(record *Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	// Build a transaction to prevent race conditions
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&Record{}).
			Where("address = ?", record.Address).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return errors.WithMessagef(ErrAlreadyInitialized,
				"record %x", record.Address)
		}
		return tx.Create(record).Error
	})
	return alreadyInitialized(err, "record", record.Address)
}

// GetRecord returns the Record at the given address
// Or ErrNotFound if it does not exist
func (d *DatabaseImpl) GetRecord(address *id.ID) (*Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	result := &Record{}
	err := d.db.WithContext(ctx).
		Where("address = ?", address.Marshal()).Take(result).Error
	if err != nil {
		return nil, notFound(err, "record", address.Marshal())
	}
	return result, nil
}

// InsertComputationDefinition creates the ComputationDefinition in the
// Database. It fails with ErrAlreadyInitialized if it already exists
func (d *DatabaseImpl) InsertComputationDefinition(def *ComputationDefinition) error {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&ComputationDefinition{}).
			Where("address = ?", def.Address).Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return errors.WithMessagef(ErrAlreadyInitialized,
				"computation definition %s", def.Name)
		}
		return tx.Create(def).Error
	})
	return alreadyInitialized(err, "computation definition", def.Name)
}

// GetComputationDefinition returns the program's ComputationDefinition at
// offset, or ErrNotFound if it has not been initialized
func (d *DatabaseImpl) GetComputationDefinition(program *id.ID,
	offset uint32) (*ComputationDefinition, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	result := &ComputationDefinition{}
	err := d.db.WithContext(ctx).
		Where("program = ? AND comp_def_offset = ?", program.Marshal(), offset).
		Take(result).Error
	if err != nil {
		return nil, notFound(err, "computation definition", program.Marshal())
	}
	return result, nil
}
