package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// StateHash computes a deterministic digest of the snapshot for loop-guard
// bookkeeping. The representation is canonical: maps are walked in sorted
// key order and non-deterministic fields (timestamps, history, the loop
// counts themselves) are excluded, so two identical positions always hash
// to the same value.
func (m *GameStateManager) StateHash() string {
	s := m.state
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%d|%t\n", s.ActivePlayer, s.Phase, s.Turn, s.GameOver)

	for _, pid := range s.PlayerOrder {
		p := s.Players[pid]
		fmt.Fprintf(&buf, "PLAYER:%s\n", pid)

		zones := make([]string, 0, len(p.Zones))
		for z := range p.Zones {
			zones = append(zones, string(z))
		}
		sort.Strings(zones)
		for _, z := range zones {
			fmt.Fprintf(&buf, "ZONE:%s|%v\n", z, p.Zones[Zone(z)])
		}

		flags := make([]string, 0, len(p.Flags))
		for k := range p.Flags {
			flags = append(flags, k)
		}
		sort.Strings(flags)
		for _, k := range flags {
			fmt.Fprintf(&buf, "FLAG:%s|%t\n", k, p.Flags[k])
		}
	}

	cardIDs := make([]string, 0, len(s.Cards))
	for id := range s.Cards {
		cardIDs = append(cardIDs, id)
	}
	sort.Strings(cardIDs)
	for _, id := range cardIDs {
		c := s.Cards[id]
		fmt.Fprintf(&buf, "CARD:%s|%s|%s|%s|%s|%v\n", id, c.Controller, c.Zone, c.State, c.Def.ID, c.GivenDon)
		for _, mod := range c.Modifiers {
			fmt.Fprintf(&buf, "MOD:%s|%d|%s|%s\n", mod.Type, mod.Value, mod.Keyword, mod.Duration)
		}
	}

	donIDs := make([]string, 0, len(s.Dons))
	for id := range s.Dons {
		donIDs = append(donIDs, id)
	}
	sort.Strings(donIDs)
	for _, id := range donIDs {
		d := s.Dons[id]
		fmt.Fprintf(&buf, "DON:%s|%s|%s|%s\n", id, d.Zone, d.State, d.AttachedTo)
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
