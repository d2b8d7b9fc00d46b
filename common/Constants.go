package common

import "path/filepath"

const AppName = "launcher"

const ConfigFilename = "launcher.json"
const EnvPrefix = "LAUNCHER"

const RuntimeFolderName = "runtime"
const DefaultPlatform = "windows-amd64"

const RequirementsFilename = "requirements.txt"
const EntryPointFilename = "main.py"

const WindowedPythonFilename = "pythonw.exe"
const ConsolePythonFilename = "python.exe"

const PthPattern = "python*._pth"
const SiteImportDirective = "import site"

const PythonDownloadURL = "https://www.python.org/ftp/python/3.11.9/python-3.11.9-embed-amd64.zip"
const GetPipDownloadURL = "https://bootstrap.pypa.io/get-pip.py"

// Attachment names used when a runtime bundle is embedded into the executable.
const RuntimeAttachmentName = "runtime"
const HashesAttachmentName = "hashes"

const getPipFilename = "get-pip.py"

// GetPipName returns where get-pip.py is stored inside the runtime directory.
func GetPipName(runtimeDir string) string {
	return filepath.Join(runtimeDir, getPipFilename)
}
