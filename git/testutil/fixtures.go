package testutil

// Test user information used across all test helpers.
const (
	// TestAuthor is the default author name for test commits.
	TestAuthor = "Test User"

	// TestEmail is the default email for test commits.
	TestEmail = "test@example.com"
)

// Test repository locations.
const (
	// TestRepoPath is where NewMemoryRepo places the working tree inside
	// its memory filesystem.
	TestRepoPath = "/repo"

	// TestRemoteURL is the URL Server.Add uses when no name is given.
	TestRemoteURL = "file:///origin.git"
)

// Test file content.
const (
	// TestFileContent is sample content for README files.
	TestFileContent = "# Test Repository\n\nThis is a test repository.\n"

	// TestGoFileContent is sample Go source code.
	TestGoFileContent = `package main

import "fmt"

func main() {
	fmt.Println("Hello, World!")
}
`
)
