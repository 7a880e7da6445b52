package model

import "time"

// Worker is a staff account of an organization, scoped to one venue.  Only
// bcrypt hashes of passwords are stored.
//
// Fields:
//  ID             – primary key identifier.
//  OrganizationID – employer organization.
//  VenueID        – venue the worker operates.
//  Role           – roles.type (e.g. "admin", "door").
//  Email          – unique login.
//  PasswordHash   – bcrypt hash of the password.
//  FirstName      – given name.
//  LastName       – family name.
//  DeletedAt      – soft delete marker; deleted workers cannot log in.
type Worker struct {
    ID             uint64     // organization_workers.id
    OrganizationID uint64     // organization_workers.organization_id
    VenueID        uint64     // organization_workers.venue_id
    Role           string     // roles.type
    Email          string     // organization_workers.email
    PasswordHash   string     // organization_workers.password_hash
    FirstName      string     // organization_workers.first_name
    LastName       string     // organization_workers.last_name
    DeletedAt      *time.Time // organization_workers.deleted_at (nullable)
}

// FullName is "first last".
func (w Worker) FullName() string { return w.FirstName + " " + w.LastName }

// StaffIdentity is the decoded identity of an authenticated worker as
// carried by a staff session token.
type StaffIdentity struct {
    EmployeeID     uint64
    OrganizationID uint64
    VenueID        uint64
    Role           string
    Email          string
    Name           string
}

// Owns reports whether the worker's venue and organization match.
func (s StaffIdentity) Owns(venueID, organizationID uint64) bool {
    return s.VenueID == venueID && s.OrganizationID == organizationID
}
