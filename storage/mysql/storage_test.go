/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package mysql

import (
	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

// newStorageMock returns a mocked MySQL storage instance.
func newStorageMock() (*mySQLStorage, sqlmock.Sqlmock) {
	db, sqlMock, err := sqlmock.New()
	if err != nil {
		panic(err)
	}
	return &mySQLStorage{db: db}, sqlMock
}

func newPrivacyMock() (*mySQLPrivacy, sqlmock.Sqlmock) {
	s, sqlMock := newStorageMock()
	return &mySQLPrivacy{mySQLStorage: s}, sqlMock
}

func newRosterMock() (*mySQLRoster, sqlmock.Sqlmock) {
	s, sqlMock := newStorageMock()
	return &mySQLRoster{mySQLStorage: s}, sqlMock
}
