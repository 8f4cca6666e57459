package domain

import "time"

// User is owned by the identity side of the system.
// PasswordHash never leaves the repository and service layers.
type User struct {
	ID           string
	Email        string
	FullName     string
	ProfilePic   string
	Bio          string
	PasswordHash string
	CreatedAt    time.Time
}

// DirectoryEntry is the public view of a user listed in the sidebar.
type DirectoryEntry struct {
	ID         string
	FullName   string
	ProfilePic string
	Bio        string
}

func (u User) Entry() DirectoryEntry {
	return DirectoryEntry{ID: u.ID, FullName: u.FullName, ProfilePic: u.ProfilePic, Bio: u.Bio}
}

// SidebarEntry pairs a directory user with the number of messages
// that user sent to the caller which are still unseen.
type SidebarEntry struct {
	User   DirectoryEntry
	Unseen int
}
