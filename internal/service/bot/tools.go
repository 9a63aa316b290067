package bot

import (
	"encoding/json"

	"github.com/sandevgo/brotherbot/internal/core"
)

const pythonSchema = `
{
  "type": "object",
  "properties": {
    "command": { "type": "string", "description": "The python code to execute. MUST print the output using print()" }
  },
  "required": ["command"]
}
`

const timerSchema = `
{
  "type": "object",
  "properties": {
    "time": { "type": "string", "description": "The ISO date for the timer" },
    "relative_time": { "type": "string", "description": "The relative time for the timer, in the format DD:HH:MM:SS" },
    "name": { "type": "string", "description": "The name of the timer" }
  },
  "required": ["name"]
}
`

// Tools is the fixed tool set offered to the model on every turn.
var Tools = []core.Tool{
	{
		Type: "function",
		Function: core.Function{
			Name: core.ToolPython,
			Description: "Allows you to execute python code with numpy, scipy and pandas. " +
				"You MUST ALWAYS call print() on all output/return values - i.e. print(output)",
			Parameters: json.RawMessage(pythonSchema),
		},
	},
	{
		Type: "function",
		Function: core.Function{
			Name: core.ToolTimer,
			Description: "Allows you to set timers when the user requests it. " +
				"You MUST include EITHER the time OR the relative_time parameter.",
			Parameters: json.RawMessage(timerSchema),
		},
	},
}
