package processor

import (
	"errors"
	"fmt"
	"time"

	"github.com/norasector/ledscope/pkg/dsp/viz"
)

const defaultVizLength = 2048

// Processor runs float blocks in order and ends in a single slicing block.
type Processor struct {
	Name        string
	blocks      []*DSPWorker
	vizServer   *viz.Server
	initialized bool
}

// NewProcessor creates an empty chain. Block outputs are plotted under name
// when vizServer is not nil.
func NewProcessor(name string, vizServer *viz.Server) *Processor {
	return &Processor{
		Name:      name,
		vizServer: vizServer,
	}
}

func (p *Processor) AddBlock(worker *DSPWorker) {
	p.blocks = append(p.blocks, worker)
}

func (p *Processor) Initialize() error {
	if p.initialized {
		return nil
	}
	if len(p.blocks) == 0 {
		return fmt.Errorf("must specify at least 1 block")
	}
	if p.blocks[0].inputDataType != DataTypeFloat {
		return fmt.Errorf("first block %s must take %s input", p.blocks[0].Name, DataTypeFloat)
	}
	last := p.blocks[len(p.blocks)-1]
	if last.outputDataType != DataTypeBytes {
		return fmt.Errorf("last block %s must produce %s", last.Name, DataTypeBytes)
	}

	vizIndex := 0
	for i, cur := range p.blocks {
		if i+1 < len(p.blocks) {
			next := p.blocks[i+1]
			if cur.outputDataType != next.inputDataType {
				return fmt.Errorf("cur: %s next %s data type mismatch (%s %s)", cur.Name, next.Name, cur.outputDataType, next.inputDataType)
			}
			if cur.SampleRate != next.SampleRate {
				return fmt.Errorf("cur: %s next %s rate mismatch (%d %d)", cur.Name, next.Name, cur.SampleRate, next.SampleRate)
			}
		}

		if p.vizServer == nil || cur.outputDataType != DataTypeFloat {
			continue
		}
		vizIndex++
		vizLength := defaultVizLength
		if cur.vizSize > 0 {
			vizLength = cur.vizSize
		}
		cur.waveform = viz.NewWaveformPlotter(fmt.Sprintf("%02d. %s", vizIndex, cur.DisplayName), vizLength, cur.SampleRate)
		if cur.plotType != viz.PlotTypeDefault {
			cur.waveform.SetPlotType(cur.plotType)
		}
		for _, opt := range cur.plotOptions {
			cur.waveform.AddPlotOption(opt)
		}
		p.vizServer.Register(p.Name, cur.waveform)
	}

	p.initialized = true
	return nil
}

// ProcessFloatToBinary runs input through every block. metrics receives the
// duration of each block in microseconds, keyed <block>_duration.
func (p *Processor) ProcessFloatToBinary(input []float32, metrics map[string]interface{}) ([]byte, error) {
	if !p.initialized {
		if err := p.Initialize(); err != nil {
			return nil, err
		}
	}
	if len(input) == 0 {
		return nil, errors.New("must specify input")
	}

	floatInput := input
	var byteOutput []byte

	for _, block := range p.blocks {
		start := time.Now()

		switch block.outputDataType {
		case DataTypeFloat:
			size := block.ffWorker.PredictOutputSize(len(floatInput))
			if cap(block.fOutputBuffer) < size {
				block.fOutputBuffer = make([]float32, size)
			}
			length := block.ffWorker.WorkBuffer(floatInput, block.fOutputBuffer[:size])
			floatInput = block.fOutputBuffer[:length]

			if block.waveform != nil {
				head := floatInput
				if len(head) > block.waveform.Size() {
					head = head[:block.waveform.Size()]
				}
				block.waveform.AppendFloat(head)
			}

		case DataTypeBytes:
			size := block.fbWorker.PredictOutputSize(len(floatInput))
			if cap(block.bOutputBuffer) < size {
				block.bOutputBuffer = make([]byte, size)
			}
			length := block.fbWorker.WorkBuffer(floatInput, block.bOutputBuffer[:size])
			byteOutput = block.bOutputBuffer[:length]

		default:
			return nil, fmt.Errorf("%s unknown output type %d", block.Name, block.outputDataType)
		}

		if metrics != nil {
			metrics[fmt.Sprintf("%s_duration", block.Name)] = time.Since(start).Microseconds()
		}
	}
	return byteOutput, nil
}
