// internal/app/system/permcat/permcat.go

// Package permcat is the static catalog of (module, action) pairs the
// console understands. Pure data: nothing here touches the store. Group
// creation and update validate every requested permission against this
// catalog so a typo cannot mint a permission no code will ever check.
package permcat

import (
	"fmt"
	"sort"

	"github.com/vocelabs/vocehub/internal/domain/models"
)

// Module groups the actions available on one console area.
type Module struct {
	ID          string
	Name        string
	Description string
	Actions     []string
}

// catalog lists every module and its actions. Order here is the display
// order the console uses.
var catalog = []Module{
	{
		ID:          "dashboard",
		Name:        "Operative Dashboard",
		Description: "Landing dashboard with workload widgets",
		Actions:     []string{"view", "view_all"},
	},
	{
		ID:          "prospects",
		Name:        "Prospects",
		Description: "Prospect records and stage management",
		Actions: []string{
			"view", "view_details", "view_all", "create", "edit", "delete",
			"assign", "bulk_assign", "export", "change_stage", "view_history",
		},
	},
	{
		ID:          "livechat",
		Name:        "Live Chat",
		Description: "Agent-assisted chat conversations",
		Actions: []string{
			"view", "view_all", "send_messages", "send_images", "send_voice",
			"schedule_call", "view_analytics", "assign_conversation",
		},
	},
	{
		ID:          "livemonitor",
		Name:        "Live Monitor",
		Description: "Real-time call monitoring",
		Actions: []string{
			"view", "view_all", "listen_live", "view_transcription", "send_whisper",
		},
	},
	{
		ID:          "scheduledcalls",
		Name:        "Scheduled Calls",
		Description: "Call calendar and follow-ups",
		Actions:     []string{"view", "view_all", "create", "edit", "delete"},
	},
	{
		ID:          "analysis",
		Name:        "Call Analysis",
		Description: "Recorded call review and scoring",
		Actions: []string{
			"view", "view_all", "play_audio", "download_audio", "export_analysis",
		},
	},
	{
		ID:          "calls",
		Name:        "Calls",
		Description: "Call history",
		Actions:     []string{"view", "view_all", "export"},
	},
	{
		ID:          "reports",
		Name:        "Reports",
		Description: "Operational reporting",
		Actions:     []string{"view", "export_report"},
	},
	{
		ID:          "users",
		Name:        "User Administration",
		Description: "Console accounts and their roles",
		Actions: []string{
			"view", "create", "edit", "delete", "reset_password", "manage_permissions",
		},
	},
	{
		ID:          "groups",
		Name:        "Permission Groups",
		Description: "Reusable permission bundles",
		Actions:     []string{"view", "create", "edit", "delete", "assign"},
	},
	{
		ID:          "coordinations",
		Name:        "Coordinations",
		Description: "Organizational units and their membership",
		Actions: []string{
			"view", "create", "edit", "delete", "archive", "assign_members",
		},
	},
}

// index is built once at init for O(1) validation.
var index = func() map[string]map[string]struct{} {
	m := make(map[string]map[string]struct{}, len(catalog))
	for _, mod := range catalog {
		actions := make(map[string]struct{}, len(mod.Actions))
		for _, a := range mod.Actions {
			actions[a] = struct{}{}
		}
		m[mod.ID] = actions
	}
	return m
}()

// Modules returns the catalog in display order. The caller must not
// mutate the returned slice.
func Modules() []Module { return catalog }

// ModuleIDs returns the sorted module identifiers.
func ModuleIDs() []string {
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Valid reports whether (module, action) is a pair the console checks
// anywhere.
func Valid(module, action string) bool {
	actions, ok := index[module]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// Validate checks a whole permission slice, returning an error naming the
// first unknown pair.
func Validate(perms []models.Permission) error {
	for _, p := range perms {
		if !Valid(p.Module, p.Action) {
			return fmt.Errorf("unknown permission %s.%s", p.Module, p.Action)
		}
	}
	return nil
}

// Actions returns the actions of one module, or nil for an unknown
// module.
func Actions(module string) []string {
	for _, mod := range catalog {
		if mod.ID == module {
			return mod.Actions
		}
	}
	return nil
}
