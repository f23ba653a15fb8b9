package rest

import (
	"encoding/base64"
	"fmt"

	"github.com/italolelis/flood_bridge/internal/dc"
	"github.com/zeebo/bencode"
)

const maxTorrentSize = 10 * 1024 * 1024 // 10MB

// decodeTorrentFile decodes base64 .torrent content and checks that it is a
// bencoded dictionary carrying an info dictionary.
func decodeTorrentFile(content string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, &dc.InvalidContentError{Field: "content", Reason: "invalid base64", Err: err}
	}

	if len(data) == 0 {
		return nil, &dc.InvalidContentError{Field: "content", Reason: "empty torrent file"}
	}

	if len(data) > maxTorrentSize {
		return nil, &dc.InvalidContentError{
			Field:  "content",
			Reason: fmt.Sprintf("torrent file exceeds %d bytes", maxTorrentSize),
		}
	}

	if err := validateBencodeStructure(data); err != nil {
		return nil, err
	}

	return data, nil
}

func validateBencodeStructure(data []byte) error {
	var torrentData any

	if err := bencode.DecodeBytes(data, &torrentData); err != nil {
		return &dc.InvalidContentError{
			Field:  "content",
			Reason: fmt.Sprintf("invalid bencode structure: %v", err),
			Err:    err,
		}
	}

	dict, ok := torrentData.(map[string]any)
	if !ok {
		return &dc.InvalidContentError{Field: "content", Reason: "bencode root must be a dictionary"}
	}

	if _, ok := dict["info"].(map[string]any); !ok {
		return &dc.InvalidContentError{Field: "content", Reason: "bencode missing required 'info' dictionary"}
	}

	return nil
}
