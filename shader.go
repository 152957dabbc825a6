package vitamin

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

const spirvMagic = 0x07230203

// Shader file names looked up in the shader directory.
const (
	VertexShaderFile   = "vert.spv"
	FragmentShaderFile = "frag.spv"
)

// ReadSPIRV loads a compiled shader and checks it looks like SPIR-V.
func ReadSPIRV(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	if err := checkSPIRV(code); err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	return code, nil
}

func checkSPIRV(code []byte) error {
	if len(code) < 4 || len(code)%4 != 0 {
		return errors.Newf("invalid SPIR-V length %d", len(code))
	}
	if binary.LittleEndian.Uint32(code) != spirvMagic {
		return errors.Newf("bad SPIR-V magic %#x", binary.LittleEndian.Uint32(code))
	}
	return nil
}

// ShaderProgram is a vertex and fragment module pair.
type ShaderProgram struct {
	driver   Driver
	Vertex   vk.ShaderModule
	Fragment vk.ShaderModule
}

// LoadShaderProgram creates modules from vert.spv and frag.spv in dir.
func LoadShaderProgram(d Driver, dir string) (*ShaderProgram, error) {
	vert, err := ReadSPIRV(filepath.Join(dir, VertexShaderFile))
	if err != nil {
		return nil, kindf(ErrSetup, err, "vertex shader")
	}
	frag, err := ReadSPIRV(filepath.Join(dir, FragmentShaderFile))
	if err != nil {
		return nil, kindf(ErrSetup, err, "fragment shader")
	}

	program := &ShaderProgram{driver: d}
	if program.Vertex, err = d.CreateShaderModule(vert); err != nil {
		return nil, kindf(ErrSetup, err, "vertex shader module")
	}
	if program.Fragment, err = d.CreateShaderModule(frag); err != nil {
		d.DestroyShaderModule(program.Vertex)
		return nil, kindf(ErrSetup, err, "fragment shader module")
	}
	return program, nil
}

func (p *ShaderProgram) stages() []vk.PipelineShaderStageCreateInfo {
	return []vk.PipelineShaderStageCreateInfo{{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageVertexBit,
		Module: p.Vertex,
		PName:  safeString("main"),
	}, {
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageFragmentBit,
		Module: p.Fragment,
		PName:  safeString("main"),
	}}
}

// Destroy releases both modules. Safe once the pipeline has been created.
func (p *ShaderProgram) Destroy() {
	p.driver.DestroyShaderModule(p.Fragment)
	p.driver.DestroyShaderModule(p.Vertex)
	p.Vertex, p.Fragment = vk.NullShaderModule, vk.NullShaderModule
}
