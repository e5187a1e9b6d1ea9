package models

import "fmt"

// DateParseError : la date de référence ne respecte pas le format DD-MM-YYYY.
type DateParseError struct {
	Value  string
	Layout string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("date de référence invalide %q (format attendu %s)", e.Value, e.Layout)
}

// MalformedRecordError : un événement d'achat a une date absente ou illisible.
// Le run entier échoue pour ne pas sous-compter la fréquence d'un client.
type MalformedRecordError struct {
	Row   int // numéro de ligne dans la source (1 = première ligne de données)
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ligne %d : date d'achat invalide %q: %v", e.Row, e.Value, e.Err)
	}
	return fmt.Sprintf("ligne %d : date d'achat invalide %q", e.Row, e.Value)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// MissingColumnError : une colonne requise est absente de la source.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("colonne requise absente : %q", e.Column)
}

// EmptyInputError : aucun événement après filtrage. Traité comme "aucun client churné".
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "aucun événement d'achat après filtrage"
}

// MissingCustomerError : un événement d'achat n'a pas d'identifiant client.
type MissingCustomerError struct {
	Row int
}

func (e *MissingCustomerError) Error() string {
	return fmt.Sprintf("ligne %d : identifiant client vide", e.Row)
}
