package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirsFromFileList_DedupsDirectories(t *testing.T) {
	output := "/opt/stack1/docker-compose.yml\n/opt/stack1/docker-compose.yaml\n/opt/stack2/docker-compose.yml\n"
	dirs := dirsFromFileList(output)
	assert.Equal(t, []string{"/opt/stack1", "/opt/stack2"}, dirs)
}

func TestDirsFromFileList_EmptyInput(t *testing.T) {
	assert.Empty(t, dirsFromFileList(""))
}
