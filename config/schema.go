package config

// planSchema is the JSON schema every plan file must satisfy before
// conversion. Duration fields are strings in Go duration syntax; their
// parseability is checked during conversion, not here.
const planSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "load"],
  "additionalProperties": false,
  "properties": {
    "name": {
      "type": "string",
      "minLength": 1
    },
    "load": {
      "type": "object",
      "required": ["concurrency", "interval", "duration"],
      "additionalProperties": false,
      "properties": {
        "concurrency": {"type": "integer", "minimum": 1},
        "interval": {"type": "string", "minLength": 1},
        "duration": {"type": "string", "minLength": 1},
        "maxIterations": {"type": "integer", "minimum": 1},
        "termination": {
          "type": "string",
          "enum": ["duration", "complete-current-interval", "strict-duration"]
        },
        "gracefulStop": {"type": "string", "minLength": 1}
      }
    },
    "workers": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "mode": {"type": "string", "enum": ["hybrid", "task-spawned"]},
        "maxWorkers": {"type": "integer", "minimum": 1},
        "channelCapacity": {"type": "integer", "minimum": 1},
        "detailedMetrics": {"type": "boolean"}
      }
    },
    "operation": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "sleepMin": {"type": "string", "minLength": 1},
        "sleepMax": {"type": "string", "minLength": 1},
        "failureRate": {"type": "number", "minimum": 0, "exclusiveMaximum": 1}
      }
    }
  }
}`
