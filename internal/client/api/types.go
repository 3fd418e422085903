package api

// EntryPayload is the wire form of a time entry submission. Optional fields
// are omitted so the server applies its defaults.
type EntryPayload struct {
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	CourtierID  uint   `json:"courtier_id"`
	Minutes     int    `json:"minutes"`
	ActeType    string `json:"acte_type"`
	ActeGestion string `json:"acte_de_gestion,omitempty"`
	Dossier     string `json:"dossier,omitempty"`
	ClientName  string `json:"client_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// SyncItem is one queued draft in a sync batch: the payload plus the
// client-assigned temp id the server echoes back in the manifest.
type SyncItem struct {
	TempID string `json:"temp_id"`
	EntryPayload
}

// User is the profile the server returns on login.
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Entry is a persisted entry as rendered by the server.
type Entry struct {
	ID           uint   `json:"id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Period       string `json:"period"`
	UserID       uint   `json:"user_id"`
	UserName     string `json:"user_name"`
	CourtierID   uint   `json:"courtier_id"`
	CourtierName string `json:"courtier_name"`
	Minutes      int    `json:"minutes"`
	ActeType     string `json:"acte_type"`
	ActeGestion  string `json:"acte_de_gestion"`
	Dossier      string `json:"dossier"`
	ClientName   string `json:"client_name"`
	Description  string `json:"description"`
	CreatedAt    string `json:"created_at"`
}

// Courtier is a broker entries can be attributed to.
type Courtier struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// LoginResult carries the token pair and profile returned by login.
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// TodayStats mirrors GET /api/stats.
type TodayStats struct {
	TodayMinutes int    `json:"today_minutes"`
	TodayCalls   int    `json:"today_calls"`
	LastEntry    *Entry `json:"last_entry"`
}

// EntryPage mirrors the paginated GET /api/entries response.
type EntryPage struct {
	Entries     []Entry `json:"entries"`
	Total       int64   `json:"total"`
	Pages       int     `json:"pages"`
	CurrentPage int     `json:"current_page"`
	PerPage     int     `json:"per_page"`
}

// SyncedEntry pairs an acknowledged temp id with its persisted entry.
type SyncedEntry struct {
	TempID string `json:"temp_id"`
	Entry  Entry  `json:"entry"`
}

// SyncError names the draft that failed and why.
type SyncError struct {
	TempID string `json:"temp_id"`
	Reason string `json:"reason"`
}

// SyncManifest is the per-draft outcome of a sync batch. Only temp ids
// listed in SyncedEntries may be dropped from the local queue.
type SyncManifest struct {
	Synced        int           `json:"synced"`
	Errors        int           `json:"errors"`
	SyncedEntries []SyncedEntry `json:"synced_entries"`
	ErrorDetails  []SyncError   `json:"error_details"`
}
