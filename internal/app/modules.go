package app

import (
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/modules/apt"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/modules/container"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/modules/content"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/modules/dbsql"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/modules/pip"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/modules/pyenv"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/modules/shell"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/modules/sysservice"
)

// coreModules is the definitive list of all action modules compiled into
// the sandboxstack binary.
var coreModules = []registry.Module{
	&apt.Module{},
	&container.Module{},
	&content.Module{},
	&dbsql.Module{},
	&pip.Module{},
	&pyenv.Module{},
	&shell.Module{},
	&sysservice.Module{},
}
