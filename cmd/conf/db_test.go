////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

import (
	"testing"
)

// Happy path: the address is split into host and port.
func TestLoadDatabase(t *testing.T) {
	db := loadDatabase(newTestViper(t, "database:\n  name: records\n  address: \"db.local:6543\"\n"))
	if db.Address != "db.local" || db.Port != "6543" || db.Name != "records" {
		t.Errorf("Unexpected database params: %+v", db)
	}

	def := db.toDefinition()
	if def.Address != db.Address || def.Port != db.Port || def.Name != db.Name {
		t.Errorf("Definition %+v does not match %+v", def, db)
	}
}

// Happy path: no database section leaves every value empty.
func TestLoadDatabase_Unset(t *testing.T) {
	if db := loadDatabase(newTestViper(t, "devMode: true\n")); db != (Database{}) {
		t.Errorf("Expected empty database params, got %+v", db)
	}
}

// Error path: an address without a port is fatal.
func TestLoadDatabase_NoPort(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected a panic on an address without a port")
		}
	}()
	loadDatabase(newTestViper(t, "database:\n  address: \"db.local\"\n"))
}
