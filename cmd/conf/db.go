////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

import (
	"net"

	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/privaterecord/internal"
)

// Database is the postgres connection holding the node's records and
// computation definitions. Left empty in devMode, the node keeps them in
// memory instead.
type Database struct {
	Name     string
	Username string
	Password string
	// Host and port are given together as database.address
	Address string
	Port    string
}

func loadDatabase(vip *viper.Viper) Database {
	db := Database{
		Name:     vip.GetString("database.name"),
		Username: vip.GetString("database.username"),
		Password: vip.GetString("database.password"),
	}
	if raw := vip.GetString("database.address"); raw != "" {
		var err error
		db.Address, db.Port, err = net.SplitHostPort(raw)
		if err != nil {
			jww.FATAL.Panicf("Unable to get database port from %s: %+v", raw, err)
		}
	}
	return db
}

func (d Database) toDefinition() internal.DB {
	return internal.DB{
		Username: d.Username,
		Password: d.Password,
		Name:     d.Name,
		Address:  d.Address,
		Port:     d.Port,
	}
}
