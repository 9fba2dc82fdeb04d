package utils

const ToolUserAgent = "vbuild/1.0"

// DefaultChunkSize is the read size used while streaming archives to disk.
const DefaultChunkSize = 128 * 1024

// DefaultCaptureLimit bounds tool output captured in memory (sdkmanager --list, java -version).
const DefaultCaptureLimit = 65536

const LogFile = ".vbuild.log"

// TextureTool is the texture conversion binary built next to the samples.
const TextureTool = "0701png2texture"

var TextureEnv = map[string]string{
	"VK_INSTANCE_LAYERS": "VK_LAYER_LUNARG_standard_validation",
}
