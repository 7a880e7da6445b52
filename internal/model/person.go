package model

import "time"

// Person is an append-only identity record shared by tickets and
// reservations.  People are deduplicated by a salted hash of their
// national ID (DPI); the raw DPI is only kept encrypted.
//
// Fields:
//  ID           – primary key identifier.
//  DPIHashed    – sha256(dpi + salt) as hex, unique and immutable.
//  DPIEncrypted – opaque encrypted DPI for authorized display.
//  Name         – given name.
//  Surname      – family name.
//  Email        – contact address, refreshed when a newer one is supplied.
//  BirthDate    – optional date of birth.
//  CreatedAt    – creation timestamp.
type Person struct {
    ID           uint64     // public_users.id
    DPIHashed    string     // public_users.dpi_hashed
    DPIEncrypted string     // public_users.dpi
    Name         string     // public_users.name
    Surname      string     // public_users.surname
    Email        string     // public_users.email
    BirthDate    *time.Time // public_users.birth_date (nullable)
    CreatedAt    time.Time  // public_users.created_at
}

// FullName joins name and surname the way tickets and bookings display it.
func (p Person) FullName() string {
    if p.Surname == "" {
        return p.Name
    }
    return p.Name + " " + p.Surname
}
