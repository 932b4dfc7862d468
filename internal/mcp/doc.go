// Package mcp implements the Model Context Protocol (MCP) server for semdex.
//
// The server exposes three tools to AI coding assistants:
//   - index_project: Bring a project's retrieval index up to date
//   - retrieve_context: Fetch the indexed content most relevant to a query
//   - get_status: Report index size and the last indexed revision
//
// MCP is a JSON-RPC 2.0 protocol over stdio, so the server logs to stderr
// and keeps stdout reserved for protocol messages. Each tool call names a
// project root; the index for a project lives under <root>/.semdex/.
//
// Configure in an MCP client:
//
//	{
//	  "mcpServers": {
//	    "semdex": {
//	      "command": "/usr/local/bin/semdex",
//	      "args": ["serve"],
//	      "env": {
//	        "OPENAI_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
package mcp
