package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var cmdInit = &cobra.Command{
	Use:   "init <project_root>",
	Short: "Scaffold a new arc project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(args[0])
	},
}

func runInit(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating project root: %w", err)
	}

	files := map[string]string{
		"arc.lua":     arcLuaTemplate,
		"types.lua":   typesLuaTemplate,
		".luarc.json": luarcJSONTemplate,
	}

	for name, content := range files {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			continue // never clobber an existing file
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	return nil
}

const arcLuaTemplate = `-- Entry point. Define systems, groups, and tasks here, or require them
-- from other files.

systems["local"] = { address = "127.0.0.1", user = "" }

tasks["hello"] = {
  handler = function(system)
    log.info("hello from " .. system.name)
  end,
}
`

const typesLuaTemplate = `-- Editor-only type annotations (EmmyLua/LuaLS style). Not loaded at runtime.

---@class TargetSystem
---@field address string
---@field port integer?
---@field user string

---@class TaskConfig
---@field handler fun(system: table)
---@field when fun(system: table): boolean
---@field on_fail string
---@field tags string[]
---@field groups string[]
---@field requires string[]
---@field important boolean
`

const luarcJSONTemplate = `{
  "runtime": { "version": "Lua 5.1" },
  "workspace": { "checkThirdParty": false }
}
`
