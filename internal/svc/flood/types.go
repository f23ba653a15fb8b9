package flood

// Torrent is a snapshot of one torrent as reported by GET /torrents.
type Torrent struct {
	Hash            string   `json:"hash"`
	Name            string   `json:"name"`
	Directory       string   `json:"directory"`
	SizeBytes       int64    `json:"sizeBytes"`
	BytesDone       int64    `json:"bytesDone"`
	Eta             float64  `json:"eta"`
	Ratio           float64  `json:"ratio"`
	PercentComplete float64  `json:"percentComplete"`
	DownRate        int64    `json:"downRate"`
	UpRate          int64    `json:"upRate"`
	DateAdded       int64    `json:"dateAdded"`
	Status          []string `json:"status"`
	Message         string   `json:"message"`
	Tags            []string `json:"tags"`
}

// TorrentList is the body of GET /torrents. ID identifies the list revision
// and is of no use to callers.
type TorrentList struct {
	ID       int64              `json:"id"`
	Torrents map[string]Torrent `json:"torrents"`
}

type addURLsRequest struct {
	URLs        []string `json:"urls"`
	Destination *string  `json:"destination"`
	Tags        []string `json:"tags"`
	Start       bool     `json:"start"`
}

type addFilesRequest struct {
	Files       []string `json:"files"`
	Destination *string  `json:"destination"`
	Tags        []string `json:"tags"`
	Start       bool     `json:"start"`
}

type deleteRequest struct {
	Hashes     []string `json:"hashes"`
	DeleteData bool     `json:"deleteData"`
}
