package dal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyScheme(t *testing.T) {
	assert.Equal(t, "TENANT#acme", tenantKey("acme"))
	assert.Equal(t, "PROJ#p1#TREE", projectTreeKey("p1"))
	assert.Equal(t, "PROJ#p1#JOB#j1", projectJobKey("p1", "j1"))
}
