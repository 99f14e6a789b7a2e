// Package randomgen produces random but realistic contact data for tests and
// for the load-generating client.
package randomgen

import (
	"fmt"
	"math/rand"
	"strings"
)

var firstNames = []string{
	"Ann", "Bert", "Carla", "Dmitri", "Erika", "Felix", "Grete", "Hugo",
	"Ines", "Jules", "Karin", "Luis",
}

var lastNames = []string{
	"Lee", "Mustermann", "Novak", "Olsen", "Petrov", "Quist", "Riva",
	"Santos", "Tanaka", "Unger", "Vesely", "Wong",
}

var companies = []string{
	"Acme", "Globex", "Initech", "Nakatomi", "Tyrell", "Wonka Industries",
}

// PickFirstName returns a random first name.
func PickFirstName() string {
	return firstNames[rand.Intn(len(firstNames))]
}

// PickLastName returns a random last name.
func PickLastName() string {
	return lastNames[rand.Intn(len(lastNames))]
}

// PickFullName returns a random combination of first and last name.
func PickFullName() string {
	return PickFirstName() + " " + PickLastName()
}

// PickCompany returns a random company name.
func PickCompany() string {
	return companies[rand.Intn(len(companies))]
}

// PickEmail returns an email address that is unique for all practical
// purposes, so that repeated test runs against the same database do not trip
// the unique constraint on the email column.
func PickEmail() string {
	return fmt.Sprintf("%s.%s.%d@example.com",
		strings.ToLower(PickFirstName()), strings.ToLower(PickLastName()), rand.Int63())
}
