package db

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestUserByEmail(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	// test not found user
	user, err := testDB.UserByEmail(testDBUserEmail)
	c.Assert(user, qt.IsNil)
	c.Assert(err, qt.Equals, ErrNotFound)
	// create a new user with the email
	_, err = testDB.SetUser(&User{
		Email:     testDBUserEmail,
		Password:  testDBUserPass,
		FirstName: testDBFirstName,
		LastName:  testDBLastName,
	})
	c.Assert(err, qt.IsNil)
	// test found user
	user, err = testDB.UserByEmail(testDBUserEmail)
	c.Assert(err, qt.IsNil)
	c.Assert(user, qt.Not(qt.IsNil))
	c.Assert(user.Email, qt.Equals, testDBUserEmail)
	c.Assert(user.Password, qt.Equals, testDBUserPass)
	c.Assert(user.FirstName, qt.Equals, testDBFirstName)
	c.Assert(user.LastName, qt.Equals, testDBLastName)
}

func TestSetUser(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	user := &User{
		Email:     testDBUserEmail,
		Password:  testDBUserPass,
		FirstName: testDBFirstName,
		LastName:  testDBLastName,
	}
	// trying to update a non existing user
	user.ID = 100
	_, err := testDB.SetUser(user)
	c.Assert(err, qt.Equals, ErrInvalidData)
	// unset the ID to create a new user
	user.ID = 0
	id, err := testDB.SetUser(user)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, uint64(1))
	// update the user
	user.FirstName = "Updated"
	_, err = testDB.SetUser(user)
	c.Assert(err, qt.IsNil)
	// get the user
	updated, err := testDB.User(id)
	c.Assert(err, qt.IsNil)
	c.Assert(updated.FirstName, qt.Equals, "Updated")
	// the email index is unique
	_, err = testDB.SetUser(&User{
		Email:    testDBUserEmail,
		Password: "otherpass",
	})
	c.Assert(err, qt.IsNotNil)
}

func TestDelUser(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	// create a new user
	user := &User{
		Email:     testDBUserEmail,
		Password:  testDBUserPass,
		FirstName: testDBFirstName,
		LastName:  testDBLastName,
	}
	_, err := testDB.SetUser(user)
	c.Assert(err, qt.IsNil)
	// delete the user
	c.Assert(testDB.DelUser(user), qt.IsNil)
	// the user is gone
	_, err = testDB.UserByEmail(testDBUserEmail)
	c.Assert(err, qt.Equals, ErrNotFound)
}
